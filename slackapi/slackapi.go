// Package slackapi adapts the Slack Web API to the file and profile lookups
// the game services need.
package slackapi

import (
	"context"
	"fmt"
	"io"

	"github.com/matchasong/PictureShiritori/services"

	"github.com/slack-go/slack"
)

// FilesAPI is the subset of the Slack client used to read shared files.
type FilesAPI interface {
	GetFileInfoContext(ctx context.Context, fileID string, count, page int) (*slack.File, []slack.Comment, *slack.Paging, error)
	GetFileContext(ctx context.Context, downloadURL string, writer io.Writer) error
}

// ProfilesAPI is the subset of the Slack client used to resolve users.
type ProfilesAPI interface {
	GetUserProfileContext(ctx context.Context, params *slack.GetUserProfileParameters) (*slack.UserProfile, error)
}

type Files struct {
	api FilesAPI
}

func NewFiles(api FilesAPI) *Files {
	return &Files{api: api}
}

func (f *Files) FileInfo(ctx context.Context, fileID string) (*services.FileInfo, error) {
	file, _, _, err := f.api.GetFileInfoContext(ctx, fileID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("files.info %s: %w", fileID, err)
	}
	return &services.FileInfo{
		ID:          file.ID,
		Name:        file.Name,
		Size:        file.Size,
		User:        file.User,
		DownloadURL: file.URLPrivateDownload,
		Channels:    file.Channels,
	}, nil
}

func (f *Files) Download(ctx context.Context, downloadURL string, w io.Writer) error {
	if err := f.api.GetFileContext(ctx, downloadURL, w); err != nil {
		return fmt.Errorf("download file: %w", err)
	}
	return nil
}

type Profiles struct {
	api ProfilesAPI
}

func NewProfiles(api ProfilesAPI) *Profiles {
	return &Profiles{api: api}
}

// DisplayName prefers the profile display name, then the real name, then the
// user id itself.
func (p *Profiles) DisplayName(ctx context.Context, userID string) (string, error) {
	profile, err := p.api.GetUserProfileContext(ctx, &slack.GetUserProfileParameters{UserID: userID})
	if err != nil {
		return "", fmt.Errorf("users.profile.get %s: %w", userID, err)
	}
	switch {
	case profile.DisplayName != "":
		return profile.DisplayName, nil
	case profile.RealName != "":
		return profile.RealName, nil
	default:
		return userID, nil
	}
}
