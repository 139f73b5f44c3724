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
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMasterKey(t *testing.T) {
	dir := t.TempDir()

	key, err := LoadMasterKey(dir, "")
	if err != nil || key != nil {
		t.Fatalf("LoadMasterKey(no passphrase) = %v, %v", key, err)
	}

	key, err = LoadMasterKey(dir, "correct horse")
	if err != nil || key == nil {
		t.Fatalf("LoadMasterKey(create) = %v, %v", key, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "master.key")); err != nil {
		t.Fatalf("master.key not written: %v", err)
	}

	if _, err := LoadMasterKey(dir, "correct horse"); err != nil {
		t.Errorf("LoadMasterKey(reload) = %v", err)
	}
	if _, err := LoadMasterKey(dir, ""); !errors.Is(err, ErrKeyWithoutPassphrase) {
		t.Errorf("LoadMasterKey(existing key, no passphrase) = %v, want ErrKeyWithoutPassphrase", err)
	}
	if _, err := LoadMasterKey(dir, "wrong"); err == nil {
		t.Error("LoadMasterKey(wrong passphrase) succeeded")
	}
}

func TestEncryptedStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(MasterKeyEnv, "s3cret")
	s, key, err := OpenStorage(dir)
	if err != nil || key == nil {
		t.Fatalf("OpenStorage = %v, %v", key, err)
	}
	gs := NewGameStore(dir, s)
	if err := gs.SaveGame(newTestGame(t, "enc-1")); err != nil {
		t.Fatal(err)
	}

	s2, _, err := OpenStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewGameStore(dir, s2).LoadGame("enc-1")
	if err != nil {
		t.Fatalf("LoadGame with reopened key: %v", err)
	}
	if g.Date != "2025-05-10" {
		t.Errorf("Date = %q", g.Date)
	}
}
