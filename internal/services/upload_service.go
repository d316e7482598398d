package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/joshua-takyi/eventnest/internal/helpers"
	"github.com/joshua-takyi/eventnest/internal/monitoring"
)

const MaxUploadSize = 10 << 20

type UploadService struct {
	pinner Pinner
}

func NewUploadService(pinner Pinner) *UploadService {
	return &UploadService{pinner: pinner}
}

type Upload struct {
	CID     string `json:"cid"`
	URL     string `json:"url,omitempty"`
	IpfsURL string `json:"ipfsUrl"`
}

func (us *UploadService) UploadFile(ctx context.Context, name string, r io.Reader) (*Upload, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." {
		return nil, &ValidationError{Message: "No file provided"}
	}

	res, err := us.pinner.PinFile(ctx, helpers.PostersFolder+"-"+name, r)
	monitoring.RecordGatewayCall("pinata", "file", err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataUpload, err)
	}
	return &Upload{
		CID:     res.IpfsHash,
		IpfsURL: us.pinner.GatewayURL(res.IpfsHash),
	}, nil
}

func (us *UploadService) UploadMetadata(ctx context.Context, name string, metadata any) (*Upload, error) {
	if metadata == nil {
		return nil, &ValidationError{Message: "Metadata is required"}
	}
	if strings.TrimSpace(name) == "" {
		name = helpers.TicketsFolder + "-metadata.json"
	}

	res, err := us.pinner.PinJSON(ctx, name, metadata)
	monitoring.RecordGatewayCall("pinata", "metadata", err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataUpload, err)
	}
	return &Upload{
		CID:     res.IpfsHash,
		URL:     "ipfs://" + res.IpfsHash,
		IpfsURL: us.pinner.GatewayURL(res.IpfsHash),
	}, nil
}
