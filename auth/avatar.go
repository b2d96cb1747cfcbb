package auth

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	goerrors "github.com/goliatone/go-errors"
)

// MaxAvatarSize caps the accepted upload at 4MB.
const MaxAvatarSize = 4 << 20

const avatarSide = 250

var avatarExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ValidAvatarFilename reports whether the upload carries an accepted image
// extension.
func ValidAvatarFilename(filename string) bool {
	return avatarExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ProcessAvatar decodes the upload, crops it to a centered 250x250 square,
// and re-encodes it as PNG. Every stored avatar ends up the same shape and
// format no matter what was uploaded.
func ProcessAvatar(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, goerrors.New("please upload a valid image", goerrors.CategoryBadInput).
			WithTextCode(TextCodeValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	img = imaging.Fill(img, avatarSide, avatarSide, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode avatar")
	}

	return buf.Bytes(), nil
}
