package git

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var braceRename = regexp.MustCompile(`(.*)\{[^}]* => ([^}]*)\}(.*)`)

// StagedChanges returns the files and patch staged for the next commit.
func (r *Repository) StagedChanges(ctx context.Context) (*StagedChanges, error) {
	numstat, err := r.run(ctx, "diff", "--cached", "--numstat")
	if err != nil {
		return nil, fmt.Errorf("getting staged numstat: %w", err)
	}
	nameStatus, err := r.run(ctx, "diff", "--cached", "--name-status")
	if err != nil {
		return nil, fmt.Errorf("getting staged name-status: %w", err)
	}

	files, stats := parseNameStatus(nameStatus, parseNumstat(numstat))
	changes := &StagedChanges{Files: files, Stats: stats}
	if changes.Empty() {
		return changes, nil
	}

	patch, err := r.StagedDiff(ctx)
	if err != nil {
		return nil, err
	}
	changes.Patch = patch
	return changes, nil
}

// StagedDiff returns the unified diff of the index against HEAD.
func (r *Repository) StagedDiff(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "diff", "--cached", "--no-color", "--no-ext-diff")
	if err != nil {
		return "", fmt.Errorf("getting staged diff: %w", err)
	}
	return out, nil
}

// parseNumstat parses git diff --numstat output.
// Format: additions<tab>deletions<tab>filepath
func parseNumstat(output string) map[string][2]int {
	result := make(map[string][2]int)
	if output == "" {
		return result
	}

	for _, line := range strings.Split(output, "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}

		// Binary files report "-" for both counts.
		adds, _ := strconv.Atoi(parts[0])
		dels, _ := strconv.Atoi(parts[1])

		path := parts[len(parts)-1]
		if strings.Contains(path, " => ") {
			path = extractNewPath(path)
		}
		result[path] = [2]int{adds, dels}
	}
	return result
}

// parseNameStatus parses git diff --name-status output.
// Format: status<tab>filepath, or status<tab>old<tab>new for renames and copies.
func parseNameStatus(output string, numstat map[string][2]int) ([]StagedFile, DiffStats) {
	var files []StagedFile
	var stats DiffStats

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}

		code := parts[0]
		file := StagedFile{Path: parts[1]}
		switch {
		case code == "A":
			file.Status = StatusAdded
		case code == "D":
			file.Status = StatusDeleted
		case strings.HasPrefix(code, "R"):
			file.Status = StatusRenamed
			if len(parts) >= 3 {
				file.OldPath, file.Path = parts[1], parts[2]
			}
		case strings.HasPrefix(code, "C"):
			file.Status = StatusAdded
			if len(parts) >= 3 {
				file.Path = parts[2]
			}
		default:
			file.Status = StatusModified
		}

		if counts, ok := numstat[file.Path]; ok {
			file.Additions = counts[0]
			file.Deletions = counts[1]
			file.IsBinary = counts[0] == 0 && counts[1] == 0 && file.Status != StatusDeleted
		}

		files = append(files, file)
		stats.FilesChanged++
		stats.Additions += file.Additions
		stats.Deletions += file.Deletions
	}
	return files, stats
}

// extractNewPath extracts the destination from "dir/{old => new}/file" or
// "old => new".
func extractNewPath(path string) string {
	if m := braceRename.FindStringSubmatch(path); len(m) == 4 {
		return m[1] + m[2] + m[3]
	}
	if idx := strings.Index(path, " => "); idx != -1 {
		return path[idx+4:]
	}
	return path
}
