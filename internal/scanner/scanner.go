package scanner

import (
	"os"
	"path/filepath"
	"strings"
)

// MembersFile is the workspace member list, kept at the workspace root.
const MembersFile = "members.yaml"

// WorkspaceScan holds everything discovered from scanning a single workspace
type WorkspaceScan struct {
	RootDir     string
	Boards      []BoardInfo
	MembersPath string // "" when the workspace has no members.yaml
}

// BoardInfo describes a discovered board directory
type BoardInfo struct {
	Path    string // absolute path to board dir (containing board.md)
	Project string // project name if under projects/ subtree, "" otherwise
}

// ScanWorkspace recursively scans a single workspace directory
func ScanWorkspace(rootDir string) (*WorkspaceScan, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}

	scan := &WorkspaceScan{
		RootDir: absRoot,
	}

	if _, err := os.Stat(filepath.Join(absRoot, MembersFile)); err == nil {
		scan.MembersPath = filepath.Join(absRoot, MembersFile)
	}

	err = walkWorkspace(absRoot, "", scan)
	if err != nil {
		return nil, err
	}

	return scan, nil
}

// walkWorkspace recursively walks a directory, tracking project context
func walkWorkspace(dir, projectContext string, scan *WorkspaceScan) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() || shouldSkipDir(entry.Name()) {
			continue
		}
		name := entry.Name()
		absPath := filepath.Join(dir, name)

		switch name {
		case "boards":
			if err := scanBoardsDir(absPath, projectContext, scan); err != nil {
				return err
			}
		case "projects":
			if err := scanProjectsDir(absPath, scan); err != nil {
				return err
			}
		case "cards", "views":
			// board internals
			continue
		default:
			if err := walkWorkspace(absPath, projectContext, scan); err != nil {
				return err
			}
		}
	}

	return nil
}

// scanBoardsDir scans a boards/ directory for board subdirectories
func scanBoardsDir(boardsDir, projectContext string, scan *WorkspaceScan) error {
	entries, err := os.ReadDir(boardsDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		boardPath := filepath.Join(boardsDir, entry.Name())
		boardFile := filepath.Join(boardPath, "board.md")

		if _, err := os.Stat(boardFile); err == nil {
			scan.Boards = append(scan.Boards, BoardInfo{
				Path:    boardPath,
				Project: projectContext,
			})
		}
	}

	return nil
}

// scanProjectsDir scans a projects/ directory, where each subdirectory is a project
func scanProjectsDir(projectsDir string, scan *WorkspaceScan) error {
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() || shouldSkipDir(entry.Name()) {
			continue
		}
		projectPath := filepath.Join(projectsDir, entry.Name())
		if err := walkWorkspace(projectPath, entry.Name(), scan); err != nil {
			return err
		}
	}

	return nil
}

// shouldSkipDir returns true for directories that should be skipped during scanning
func shouldSkipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "node_modules", "vendor", "__pycache__", "target", "build", "dist":
		return true
	}
	return false
}
