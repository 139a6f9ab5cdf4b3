package analysisstore

import "fmt"

func errWrite(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreWrite, err)
}

func errRead(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreRead, err)
}
