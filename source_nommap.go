//go:build !unix

package lingva

import "os"

func mapFile(*os.File) ([]byte, func() error, error) {
	return nil, nil, errNotMappable
}
