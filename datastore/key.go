package datastore

import (
	"errors"
	"path"
	"strings"
)

// ValidateKey checks that key is usable on every backend.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return errors.New("key is empty")
	case strings.HasPrefix(key, "/"):
		return errors.New("key must be relative")
	case strings.ContainsRune(key, 0):
		return errors.New("key contains NUL byte")
	case strings.HasSuffix(key, MetaSuffix):
		return errors.New("key uses reserved suffix " + MetaSuffix)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return errors.New("key contains '..' segment")
		}
	}
	// Backends that map keys to paths would otherwise store "a//b.json"
	// under "a/b.json".
	if strings.HasSuffix(key, "/") || path.Clean(key) != key || key == "." {
		return errors.New("key is not in canonical form")
	}
	return nil
}

// ValidatePrefix checks a List prefix. The empty prefix is valid.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if strings.HasPrefix(prefix, "/") {
		return errors.New("prefix must be relative")
	}
	segs := strings.Split(prefix, "/")
	for i, seg := range segs {
		switch {
		case seg == "..":
			return errors.New("prefix contains '..' segment")
		case seg == ".":
			return errors.New("prefix contains '.' segment")
		case seg == "" && i < len(segs)-1:
			return errors.New("prefix contains empty segment")
		}
	}
	return nil
}
