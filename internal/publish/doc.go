// Package publish reconciles a local page tree with a remote page store.
//
// A run first syncs the home page, then walks the tree level by level:
// every level fetches the remote children of its parent, pairs them with
// local pages by source path, deletes the remote children nothing claims,
// creates or updates the rest and finally descends into the sections
// represented by pages of that level. A child level never starts before
// every page of its parent level has a remote id.
package publish
