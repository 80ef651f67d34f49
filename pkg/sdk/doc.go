// Package searchc embeds the searchc request compiler in a Go program.
//
// A Client loads container configurations from a directory, compiles searches into engine
// requests and optionally runs them against OpenSearch or Elasticsearch. Rule trees are
// compiled through a cache kept in Redis, or in an in-process Badger database by default.
//
//	client, _ := searchc.New(ctx,
//	    searchc.WithEngine("http://localhost:9200"),
//	    searchc.WithContainersDir("config/containers"),
//	)
//	defer client.Close()
//
//	compiled, _ := client.Compile(ctx, "catalog_view", "fr", searchc.Query{
//	    Text:    "red bag",
//	    Filters: map[string]any{"color": []any{"red"}},
//	})
//	res, _ := client.Search(ctx, "catalog_view", "fr", searchc.Query{Text: "red bag"})
package searchc
