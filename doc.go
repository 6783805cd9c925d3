// Package kbase embeds the knowledge-base record store and its search
// query compiler in a Go program.
//
// Queries follow a small human syntax: bare words must all appear
// somewhere in the searched fields, "quoted phrases" match verbatim,
// +word is required and -word is excluded. Results without an explicit
// ordering are ranked by how often the terms occur.
//
// # Schema-first API
//
//	type Snippet struct {
//	    ID          string    `kbase:"id"`
//	    Title       string    `kbase:"title,char,search"`
//	    Description string    `kbase:"description,text,search"`
//	    Status      string    `kbase:"status,tag"`
//	    Created     time.Time `kbase:"date_created,datetime"`
//	}
//
//	client, _ := kbase.New(ctx, kbase.WithMemory())
//	idx, _ := kbase.NewIndex[Snippet](client, "snippets", kbase.WithOrdering("-date_created"))
//	_ = idx.Ensure(ctx)
//	_, _ = idx.Upsert(ctx, Snippet{ID: "hello", Title: "Hello Go", Status: "Published"})
//	hits, _ := idx.Query().Search(`go -python`).Where("status", "Published").Limit(10).Do(ctx)
package kbase
