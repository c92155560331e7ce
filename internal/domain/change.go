package domain

import "os"

// FileChange is one planned mutation of a tag's tree produced by applying
// the patch. A change with Delete set removes the path; otherwise Content
// replaces (or creates) the file at Path.
type FileChange struct {
	Path    string
	Content string
	Delete  bool
	Mode    os.FileMode
}

// EffectiveMode returns the permission bits to write, defaulting to 0644
// when the patch carried no mode information.
func (c FileChange) EffectiveMode() os.FileMode {
	perm := c.Mode.Perm()
	if perm == 0 {
		return 0644
	}
	return perm
}
