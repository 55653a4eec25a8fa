package fs

import (
	"os"
	"path/filepath"
	"strings"

	"cardview/internal/kanban/models"

	"gopkg.in/yaml.v3"
)

// ReadViews loads every views/*.yaml file of a board directory.
func ReadViews(boardPath, boardID string) ([]models.BoardView, error) {
	dir := filepath.Join(boardPath, "views")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var views []models.BoardView
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var view models.BoardView
		if err := yaml.Unmarshal(data, &view); err != nil {
			return nil, err
		}
		if view.ID == "" {
			view.ID = strings.TrimSuffix(entry.Name(), ".yaml")
		}
		if view.ParentID == "" {
			view.ParentID = boardID
		}
		if view.RootID == "" {
			view.RootID = view.ParentID
		}
		if view.ViewType == "" {
			view.ViewType = models.ViewTypeBoard
		}
		views = append(views, view)
	}
	return views, nil
}

// WriteView writes a view to views/<id>.yaml under the board directory.
func WriteView(boardPath string, view models.BoardView) error {
	dir := filepath.Join(boardPath, "views")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(view)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, view.ID+".yaml"), data)
}

// ReadMembers reads a members.yaml list. A missing file means no members.
func ReadMembers(path string) ([]models.Member, error) {
	if path == "" || !fileExistsAt(path) {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var members []models.Member
	if err := yaml.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// WriteMembers replaces a members.yaml list.
func WriteMembers(path string, members []models.Member) error {
	data, err := yaml.Marshal(members)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}
