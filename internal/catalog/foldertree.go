package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"photo-catalog/internal/mediatypes"
	"photo-catalog/internal/pathkey"
)

// FolderTree builds one hierarchical count tree per watched root. Node
// counts aggregate bottom-up: a folder's count is its own images plus
// everything below it. ZIP roots are a single node (archives have no
// subfolders); ZIP files inside a directory root appear as one node
// keyed by the archive's path. Root nodes start expanded, the rest
// collapsed.
func (s *Store) FolderTree(ctx context.Context) ([]*FolderNode, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("folder_tree", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rootRows, queryErr := s.db.QueryContext(ctx,
		"SELECT path FROM watch_roots ORDER BY date_added ASC, id ASC")
	if queryErr != nil {
		err = fmt.Errorf("failed to read watch roots: %w", queryErr)
		return nil, err
	}
	defer rootRows.Close()

	var rootPaths []string
	for rootRows.Next() {
		var p string
		if scanErr := rootRows.Scan(&p); scanErr != nil {
			err = scanErr
			return nil, err
		}
		rootPaths = append(rootPaths, p)
	}
	err = rootRows.Err()
	if err != nil {
		return nil, err
	}

	var tree []*FolderNode
	for _, rootPath := range rootPaths {
		node, buildErr := s.buildRootNode(ctx, rootPath)
		if buildErr != nil {
			err = buildErr
			return nil, err
		}
		tree = append(tree, node)
	}
	return tree, nil
}

// buildRootNode builds the tree for one watched root. Caller holds the
// read lock.
func (s *Store) buildRootNode(ctx context.Context, rootPath string) (*FolderNode, error) {
	node := &FolderNode{
		Name:     filepath.Base(rootPath),
		Path:     rootPath,
		Expanded: true,
	}

	if mediatypes.IsArchive(rootPath) {
		// Archives are flat: all entries aggregate on the root node.
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM images WHERE archive_path = ?", rootPath,
		).Scan(&node.Count)
		if err != nil {
			return nil, fmt.Errorf("failed to count archive entries: %w", err)
		}
		return node, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, is_archive, archive_path
		FROM images
		WHERE path LIKE ? ESCAPE '\' OR archive_path LIKE ? ESCAPE '\'
	`, escapeLike(rootPath)+"%", escapeLike(rootPath)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to read images for folder tree: %w", err)
	}
	defer rows.Close()

	normRoot := strings.TrimRight(pathkey.NormalizeSlashes(rootPath), "/")

	for rows.Next() {
		var path string
		var isArchive int
		var archivePath *string
		if err := rows.Scan(&path, &isArchive, &archivePath); err != nil {
			return nil, err
		}

		// Archive entries hang off their container's node; plain images
		// off their parent directory.
		var folder string
		if isArchive != 0 && archivePath != nil {
			folder = pathkey.NormalizeSlashes(*archivePath)
		} else {
			norm := pathkey.NormalizeSlashes(path)
			folder = norm
			if i := strings.LastIndex(norm, "/"); i >= 0 {
				folder = norm[:i]
			}
		}

		if folder != normRoot && !strings.HasPrefix(folder, normRoot+"/") {
			continue
		}

		rel := strings.TrimPrefix(folder, normRoot)
		rel = strings.Trim(rel, "/")

		target := node
		if rel != "" {
			for _, segment := range strings.Split(rel, "/") {
				target = target.child(segment)
			}
		}
		target.Count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sumCounts(node)
	sortChildren(node)
	return node, nil
}

// child finds or creates the named child node.
func (n *FolderNode) child(name string) *FolderNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	c := &FolderNode{
		Name: name,
		Path: strings.TrimRight(n.Path, "/") + "/" + name,
	}
	n.Children = append(n.Children, c)
	return c
}

// sumCounts folds child counts into each parent, bottom-up.
func sumCounts(n *FolderNode) int {
	for _, c := range n.Children {
		n.Count += sumCounts(c)
	}
	return n.Count
}

func sortChildren(n *FolderNode) {
	sort.Slice(n.Children, func(i, j int) bool {
		return n.Children[i].Name < n.Children[j].Name
	})
	for _, c := range n.Children {
		sortChildren(c)
	}
}
