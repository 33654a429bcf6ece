package util

import (
	"encoding/json"
	"fmt"
	"hash/fnv"

	"github.com/subosito/gotenv"
)

// ComputeHash - get the fnv64a hash of the JSON serialization of data
func ComputeHash(data interface{}) (uint64, error) {
	dataB, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("could not marshal data to bytes")
	}

	h := fnv.New64a()
	h.Write(dataB)
	return h.Sum64(), nil
}

// ComputeHashString - hex rendering of ComputeHash, used anywhere the hash is persisted
func ComputeHashString(data interface{}) (string, error) {
	hash, err := ComputeHash(data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", hash), nil
}

// LoadEnvFromFile - loads environment variables from the file described by envFile
func LoadEnvFromFile(envFile string) error {
	if envFile != "" {
		err := gotenv.Load(envFile)
		if err != nil {
			return err
		}
	}
	return nil
}
