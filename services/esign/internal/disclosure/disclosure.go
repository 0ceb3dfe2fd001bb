// Package disclosure serves the versioned ESIGN disclosure text presented to
// signers before consent. The text is a static embedded asset; its hash is
// stamped onto every consent record so the exact disclosure wording a signer
// acknowledged can be proven later.
package disclosure

import (
	_ "embed"

	"github.com/MDx-Vision/nicehr-sub016/pkg/dochash"
)

//go:embed disclosure_v1.txt
var textV1 string

const currentVersion = "1.0"

type Disclosure struct {
	Version string `json:"version"`
	Text    string `json:"text"`
	Hash    string `json:"hash"`
}

// Current returns the active disclosure version with its content hash.
func Current() Disclosure {
	hash, _ := dochash.Sum(textV1)
	return Disclosure{Version: currentVersion, Text: textV1, Hash: hash}
}

// TextForVersion returns the disclosure text for a recorded version, used
// when stamping consent rows. Unknown versions fall back to the current text
// so a consent can never be recorded against missing disclosure content.
func TextForVersion(version string) (string, bool) {
	if version == currentVersion || version == "" {
		return textV1, true
	}
	return textV1, false
}
