// Package query parses natural-language search queries into structured
// filters. A query like "articles from github about react last week" is
// decomposed into a content type, a source domain, topic tags, a concrete
// date range, and the residual semantic terms used for vector search.
//
// Detection stages always run against the full original query, so an
// expression consumed by one stage can still inform another. Stripping for
// semantic terms happens last, and falls back to the original query when
// nothing meaningful remains.
package query
