package pipeline

import (
	"context"

	"akleg-data/internal/basis"
	"akleg-data/internal/components/assert"
	"akleg-data/internal/ingest"
)

// BasisVersions lists versions through the basis api and reads their text from the plaintext pages.
type BasisVersions struct {
	client    *basis.Client
	plaintext *basis.PlaintextClient
}

func NewBasisVersions(client *basis.Client, plaintext *basis.PlaintextClient) BasisVersions {
	assert.NotNil(client)
	assert.NotNil(plaintext)
	return BasisVersions{client: client, plaintext: plaintext}
}

func (v BasisVersions) VersionLetters(ctx context.Context, leg int16, billNumber string) ([]ingest.VersionInfo, error) {
	raw, err := v.client.BillVersions(ctx, int(leg), billNumber)
	if err != nil {
		return nil, err
	}
	out := make([]ingest.VersionInfo, 0, len(raw))
	for _, version := range raw {
		if !version.VersionLetter.Valid {
			continue
		}
		out = append(out, ingest.VersionInfo{
			Letter: version.VersionLetter.Value,
			Title:  version.Title.Null(),
		})
	}
	return out, nil
}

func (v BasisVersions) VersionText(ctx context.Context, leg int16, billNumber, letter string) (string, error) {
	return v.plaintext.BillText(ctx, int(leg), billNumber, letter)
}
