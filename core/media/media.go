/*Package media stores uploaded binary media and serves it from public URLs.

The backend treats media storage as a collaborator: it hands over a blob
and gets back a public URL which is persisted with the record.
*/
package media

import "context"

// Store uploads binary media and returns a publicly reachable URL for it.
// Delete takes that URL back to remove media which is no longer referenced.
type Store interface {
	Upload(ctx context.Context, key string, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}
