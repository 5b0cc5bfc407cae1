package aws

import (
	"context"

	"github.com/aws/aws-sdk-go/service/polly"

	"github.com/abradburne/talky"
)

// Ensure service implements interface.
var _ talky.VoiceService = &VoiceService{}

// VoiceService lists the voices offered by AWS Polly.
type VoiceService struct {
	Session *Session
}

// NewVoiceService returns a new instance of VoiceService.
func NewVoiceService() *VoiceService {
	return &VoiceService{}
}

// Voices returns every Polly voice.
func (s *VoiceService) Voices(ctx context.Context) ([]*talky.Voice, error) {
	svc := polly.New(s.Session.session)

	var voices []*talky.Voice
	input := &polly.DescribeVoicesInput{}
	for {
		resp, err := svc.DescribeVoicesWithContext(ctx, input)
		if err != nil {
			return nil, classifyAWSError(err)
		}
		for _, v := range resp.Voices {
			if v.Id == nil {
				continue
			}
			voice := &talky.Voice{ID: *v.Id}
			if v.Name != nil {
				voice.Name = *v.Name
			}
			voices = append(voices, voice)
		}
		if resp.NextToken == nil {
			break
		}
		input.NextToken = resp.NextToken
	}

	return voices, nil
}

// FindVoiceByID returns a Polly voice by ID, or nil if it does not exist.
func (s *VoiceService) FindVoiceByID(ctx context.Context, id string) (*talky.Voice, error) {
	voices, err := s.Voices(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range voices {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}
