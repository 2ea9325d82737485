package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/coach-plus/backend/models"
	"github.com/coach-plus/backend/storage"
)

const secureTokenLength = 16 // bytes, 32 hex characters

func generateSecureToken(length int) (string, error) {
	tokenBytes := make([]byte, length)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// storeDataURLImage decodes a base64 data URL and hands the payload to
// the uploader under a fresh random key. Returns the stored key.
func storeDataURLImage(ctx context.Context, uploader storage.FileUploader, prefix, dataURL string) (string, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", ErrImageInvalid
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", ErrImageInvalid
	}

	contentType, encoding, ok := strings.Cut(meta, ";")
	if !ok || encoding != "base64" {
		return "", ErrImageInvalid
	}

	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", ErrImageInvalid
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrImageInvalid
	}

	key := fmt.Sprintf("%s/%s.%s", prefix, uuid.NewString(), ext)
	if _, err := uploader.Upload(ctx, key, contentType, bytes.NewReader(raw)); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	return key, nil
}

func populateUserImage(user *models.User, uploader storage.FileUploader) {
	if user == nil || user.ImageKey == nil {
		return
	}
	url := uploader.GetPublicURL(*user.ImageKey)
	if url != "" {
		user.ImageURL = &url
	}
}

func populateTeamImage(team *models.Team, uploader storage.FileUploader) {
	if team == nil || team.ImageKey == nil {
		return
	}
	url := uploader.GetPublicURL(*team.ImageKey)
	if url != "" {
		team.ImageURL = &url
	}
}
