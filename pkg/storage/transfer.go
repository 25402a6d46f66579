package storage

import (
	"fmt"
	"os"

	"github.com/paleggworks/stayahead/pkg/model"
)

// ExportFileName is the suggested name for exported documents.
const ExportFileName = "ExportData_StayAhead.json"

// ExportFile writes a portable copy of doc to path with the token obfuscated.
func ExportFile(path string, doc model.SerializableState) error {
	data, err := model.EncodeState(doc.WithObfuscatedToken())
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write export %s: %w", path, err)
	}
	return nil
}

// ImportFile reads a document written by ExportFile and reveals its token.
func ImportFile(path string) (model.SerializableState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.SerializableState{}, fmt.Errorf("read import %s: %w", path, err)
	}

	doc, err := model.DecodeState(data)
	if err != nil {
		return model.SerializableState{}, err
	}
	return doc.WithRevealedToken()
}
