// Package query provides the fluent SELECT builder the record engine hands
// to callers in place of dynamic call forwarding.
//
//	rows, err := query.New(db, "posts").
//		Where(query.Eq("author_id", 3), query.Like("title", "Go%")).
//		OrderBy("id", query.Desc).
//		Limit(10).
//		Rows(ctx)
//
// Identifiers are quoted with the querier's dialect; values are always bound
// as parameters.
package query
