package repo

import (
	"fmt"
	"os"

	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/provlog"
)

const (
	// RemoteSourceType is the type identifier for S3-backed remote sources
	RemoteSourceType = "remote"
)

// RemoteSource serves artifacts from an S3 store. Version listing goes
// through the DynamoDB index when one is configured; otherwise the store's
// key prefixes are listed directly.
type RemoteSource struct {
	store   *S3Store
	index   *DynamoIndex
	session *Session
}

// NewRemoteSource returns a version source backed by S3, optionally indexed
// by DynamoDB. The index may be nil.
func NewRemoteSource(store *S3Store, index *DynamoIndex, session *Session) *RemoteSource {
	return &RemoteSource{
		store:   store,
		index:   index,
		session: session,
	}
}

// Type returns the remote source type
func (r *RemoteSource) Type() string {
	return RemoteSourceType
}

// Setup creates the backing bucket and, when configured, the index table
func (r *RemoteSource) Setup() error {
	if err := r.store.Setup(); err != nil {
		return err
	}
	if r.index != nil {
		return r.index.Setup()
	}
	return nil
}

// GetAllVersions returns the versions published for the coordinate identity
func (r *RemoteSource) GetAllVersions(coordinate model.Coordinate) ([]string, error) {
	versions, err := r.listVersions(coordinate)
	if err != nil {
		return nil, err
	}

	r.session.RecordProbe(coordinate, versions)
	return versions, nil
}

func (r *RemoteSource) listVersions(coordinate model.Coordinate) ([]string, error) {
	if r.index != nil {
		return r.index.GetVersions(coordinate)
	}
	return r.store.ListVersions(coordinate)
}

// ResolveArtifact downloads the artifact into the session's artifact cache
func (r *RemoteSource) ResolveArtifact(coordinate model.Coordinate) (*model.ResolvedArtifact, error) {
	if !coordinate.HasVersion() {
		return nil, fmt.Errorf("Cannot resolve %s without a version", coordinate.String())
	}

	cachePath := r.session.CachePath(coordinate)
	if _, err := os.Stat(cachePath); err == nil {
		provlog.Debugf("Using cached artifact %s", cachePath)
		return &model.ResolvedArtifact{Coordinate: coordinate, LocalPath: cachePath}, nil
	}

	provlog.Debugf("Downloading %s", coordinate.String())
	if err := r.store.Download(coordinate, cachePath); err != nil {
		return nil, err
	}

	return &model.ResolvedArtifact{Coordinate: coordinate, LocalPath: cachePath}, nil
}

// Publish uploads a local artifact file and registers its version in the
// index when one is configured
func (r *RemoteSource) Publish(coordinate model.Coordinate, source string) error {
	if err := r.store.Upload(coordinate, source); err != nil {
		return err
	}
	if r.index != nil {
		if err := r.index.RegisterVersion(coordinate); err != nil {
			return err
		}
	}
	return nil
}
