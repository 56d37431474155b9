package docstore

import (
	"fmt"
	"strings"
)

const (
	societiesCollection = "Societies"
	usersCollection     = "Users"
)

// SocietyAnimalsPath => Societies/{societyID}/{animalType}s
func SocietyAnimalsPath(societyID, animalType string) (string, error) {
	if err := checkSegments(societyID, animalType); err != nil {
		return "", err
	}
	return societiesCollection + "/" + societyID + "/" + animalType + "s", nil
}

// AnimalPath => Societies/{societyID}/{animalType}s/{animalID}
func AnimalPath(societyID, animalType, animalID string) (string, error) {
	col, err := SocietyAnimalsPath(societyID, animalType)
	if err != nil {
		return "", err
	}
	if err := checkSegments(animalID); err != nil {
		return "", err
	}
	return col + "/" + animalID, nil
}

// UserPath => Users/{userID}
func UserPath(userID string) (string, error) {
	if err := checkSegments(userID); err != nil {
		return "", err
	}
	return usersCollection + "/" + userID, nil
}

// Parent devuelve la colección que contiene al documento.
func Parent(path string) string {
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return ""
	}
	return path[:i]
}

// ValidateDocumentPath exige un número par de segmentos no vacíos (colección/doc/...).
func ValidateDocumentPath(path string) error {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || len(parts)%2 != 0 {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return nil
}

func ValidateCollectionPath(path string) error {
	parts := strings.Split(path, "/")
	if len(parts)%2 != 1 {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return nil
}

func checkSegments(segs ...string) error {
	for _, s := range segs {
		if strings.TrimSpace(s) == "" || strings.Contains(s, "/") {
			return fmt.Errorf("%w: bad segment %q", ErrInvalidPath, s)
		}
	}
	return nil
}
