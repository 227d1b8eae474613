package topic

import (
	"context"
	"fmt"

	"github.com/Jdelg140/psychology-facts-bot/types"

	"github.com/vartanbeno/go-reddit/v2/reddit"
)

// RedditSource reads hot posts through Reddit's public read-only API
type RedditSource struct {
	client *reddit.Client
	limit  int
}

// NewRedditSource creates a read-only client; no credentials are needed
func NewRedditSource(userAgent string) (*RedditSource, error) {
	var opts []reddit.Opt
	if userAgent != "" {
		opts = append(opts, reddit.WithUserAgent(userAgent))
	}
	client, err := reddit.NewReadonlyClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}
	return &RedditSource{client: client, limit: 25}, nil
}

// Hot returns the current hot posts of subreddit as topics
func (r *RedditSource) Hot(ctx context.Context, subreddit string) ([]types.Topic, error) {
	posts, _, err := r.client.Subreddit.HotPosts(ctx, subreddit, &reddit.ListOptions{Limit: r.limit})
	if err != nil {
		return nil, fmt.Errorf("r/%s: %w", subreddit, err)
	}

	topics := make([]types.Topic, 0, len(posts))
	for _, post := range posts {
		if post.Stickied || post.NSFW {
			continue
		}
		topics = append(topics, types.Topic{
			ID:        "reddit_" + post.ID,
			Title:     post.Title,
			Source:    "r/" + subreddit,
			SourceURL: "https://reddit.com" + post.Permalink,
			Score:     post.Score,
		})
	}
	return topics, nil
}
