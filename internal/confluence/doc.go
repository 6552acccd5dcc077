// Package confluence implements remote.Store on top of the Confluence
// REST API (/rest/api/content). Provenance is stored in the content property
// named PropertyKey.
package confluence
