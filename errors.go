/*
 *  errors.go
 *  allphase
 *
 *  Created by Haibao Tang on 03/02/22
 *  Copyright © 2022 Haibao Tang. All rights reserved.
 */

package allphase

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a node, edge or name is unknown
	ErrNotFound = errors.New("not found")
	// ErrPrecondition is returned when an input does not satisfy what an operation needs
	ErrPrecondition = errors.New("precondition failed")
	// ErrIO is returned when a file cannot be opened, read or written
	ErrIO = errors.New("io failure")
)

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

func preconditionf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrPrecondition)
}

// ioError wraps an underlying file error so callers can match both ErrIO and the cause
func ioError(op, path string, err error) error {
	return fmt.Errorf("%s `%s`: %w: %w", op, path, ErrIO, err)
}
