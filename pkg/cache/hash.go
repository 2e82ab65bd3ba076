package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Key namespaces. Every key a Keyer produces is "<namespace>:<sha256>",
// optionally behind a scope prefix.
const (
	NamespaceParse    = "parse"
	NamespaceArtifact = "artifact"
	NamespaceShape    = "shape"
)

// Namespaces lists the namespaces in the order the CLI reports them.
var Namespaces = []string{NamespaceParse, NamespaceArtifact, NamespaceShape}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds a namespaced key from the JSON encoding of parts.
func hashKey(namespace string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return namespace + ":" + Hash(data)
}

// Namespace returns the namespace of key, or "" for keys no Keyer made.
// Scope prefixes in front of the namespace are ignored.
func Namespace(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return ""
	}
	head := key[:i]
	if j := strings.LastIndexByte(head, ':'); j >= 0 {
		head = head[j+1:]
	}
	for _, ns := range Namespaces {
		if head == ns {
			return ns
		}
	}
	return ""
}
