// Package storage persiste los artefactos del comprobante (XML, XML firmado,
// RIDE) en el sistema de archivos local, bajo un directorio por tenant.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LocalStore guarda artefactos en {baseDir}/{companyID}/{documentID}/{name}.
// La ruta devuelta por Save es el único handle que el motor persiste; nunca
// se re-deriva a partir del comprobante.
type LocalStore struct {
	baseDir string
}

// NewLocalStore crea el almacén y asegura que el directorio base exista.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("storage: directorio base vacío")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: crear directorio base: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Save escribe el artefacto y devuelve su ruta absoluta.
func (s *LocalStore) Save(companyID, documentID, name string, data []byte) (string, error) {
	if companyID == "" || documentID == "" || name == "" {
		return "", fmt.Errorf("storage: companyID, documentID y name son obligatorios")
	}
	dir := filepath.Join(s.baseDir, sanitizeName(companyID), sanitizeName(documentID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: crear directorio: %w", err)
	}
	path := filepath.Join(dir, sanitizeName(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: escribir %s: %w", name, err)
	}
	return path, nil
}

// Load lee el artefacto por la ruta que devolvió Save.
func (s *LocalStore) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: leer %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// sanitizeName normaliza el nombre a un slug seguro para el filesystem:
// quita diacríticos, baja a minúsculas y reemplaza lo no alfanumérico por '-'.
func sanitizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, name)
	if err != nil {
		plain = name
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(plain) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	return strings.Trim(sb.String(), "-")
}
