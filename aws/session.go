package aws

import (
	"errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

// Session represents a session to AWS.
type Session struct {
	session *session.Session
}

// NewSession returns a session with the given credentials. When no access
// key is given the SDK's default credential chain is used instead, which
// picks up environment variables and shared credential files.
func NewSession(accessKeyID, secretAccessKey, region string) (*Session, error) {
	if region == "" {
		return nil, errors.New("aws region required")
	}

	config := &aws.Config{Region: aws.String(region)}
	if accessKeyID != "" {
		config.Credentials = credentials.NewStaticCredentials(accessKeyID, secretAccessKey, "")
	}

	s, err := session.NewSession(config)
	if err != nil {
		return nil, err
	}
	return &Session{session: s}, nil
}
