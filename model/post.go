package model

import "time"

/*

Post is the durable unit of blog content, stored as a JSON file in the
backing GitHub repository.

Id: opaque unique identifier, derived from the write-time clock at creation
	and immutable afterwards
Title: post's title in plain text
Content: post's body in markdown
Author: display name of the user who created the post
Published: whether the post is publicly visible
CreatedAt: time the post was created, never changes
UpdatedAt: time of the last successful write, always >= CreatedAt

*/

type Post struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Published bool      `json:"published"`
}

// CachedPost is a Post plus the time the cache copy was written. It only
// ever lives in the cache backend, never in the durable store.
type CachedPost struct {
	Post
	CachedAt time.Time `json:"cachedAt"`
}

// PostDraft carries the caller-supplied fields of a new post. Id and
// timestamps are assigned by the coordinator at creation.
type PostDraft struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	Published bool   `json:"published"`
}

// PostUpdate is a partial update. Nil fields are left untouched.
type PostUpdate struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
}

// Author identifies who a durable write is attributed to. Zero value means
// the write carries no attribution.
type Author struct {
	Name  string
	Email string
}
