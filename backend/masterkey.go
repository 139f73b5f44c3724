// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"
)

// MasterKeyEnv names the environment variable holding the passphrase of
// the data directory's master key.
const MasterKeyEnv = "SK_MASTER_KEY"

// ErrKeyWithoutPassphrase is returned when the data directory is encrypted
// but no passphrase was given.
var ErrKeyWithoutPassphrase = errors.New("master.key exists but " + MasterKeyEnv + " is not set")

// LoadMasterKey reads the master key of dataDir, creating it on first use.
// With an empty passphrase it returns a nil key, unless the directory
// already holds a key: opening encrypted data in unencrypted mode would
// corrupt it.
func LoadMasterKey(dataDir, passphrase string) (crypto.MasterKey, error) {
	keyFile := filepath.Join(dataDir, "master.key")
	if passphrase == "" {
		if _, err := os.Stat(keyFile); err == nil {
			return nil, fmt.Errorf("%s: %w", keyFile, ErrKeyWithoutPassphrase)
		}
		log.Printf("Warning: No %s provided. Data will be stored UNENCRYPTED.", MasterKeyEnv)
		return nil, nil
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	masterKey, err := crypto.ReadMasterKey([]byte(passphrase), keyFile)
	if err == nil {
		log.Println("Loaded master encryption key.")
		return masterKey, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read master key: %w", err)
	}
	log.Println("Initializing new master encryption key...")
	if masterKey, err = crypto.CreateMasterKey(); err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	if err := masterKey.Save([]byte(passphrase), keyFile); err != nil {
		return nil, fmt.Errorf("save master key: %w", err)
	}
	return masterKey, nil
}

// OpenStorage opens the data directory with the key named by the
// environment.
func OpenStorage(dataDir string) (*storage.Storage, crypto.MasterKey, error) {
	masterKey, err := LoadMasterKey(dataDir, os.Getenv(MasterKeyEnv))
	if err != nil {
		return nil, nil, err
	}
	s := storage.New(dataDir, masterKey)
	s.EnableCompression(true)
	return s, masterKey, nil
}
