// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"fmt"
	"io"
	"os"
)

// MaxFileSize bounds what ReadFile and ReadAll accept. Identity files
// are a few hundred bytes even when age-encrypted and armored.
const MaxFileSize = 64 << 10

// ReadFile reads the file at path into a Buffer.
func ReadFile(path string) (*Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	buffer, err := ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return buffer, nil
}

// ReadAll reads reader to EOF into a Buffer, zeroing the intermediate
// heap copy. Input larger than MaxFileSize is rejected.
func ReadAll(reader io.Reader) (*Buffer, error) {
	data, err := io.ReadAll(io.LimitReader(reader, MaxFileSize+1))
	if err != nil {
		Zero(data)
		return nil, err
	}
	if len(data) > MaxFileSize {
		Zero(data)
		return nil, fmt.Errorf("secret exceeds %d bytes", MaxFileSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("secret is empty")
	}
	return FromBytes(data)
}
