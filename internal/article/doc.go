// Package article parses and assembles knowledge-base articles.
//
// An article is a markdown document with this shape:
//
//	# Title
//
//	**Keywords:** redis, clustering
//
//	body ...
//
//	---
//
//	**Sources:**
//	- [Slack Thread](https://...)
//
// Documents are first tokenized into classified lines (see Tokenize) and the
// extraction and merge operations work on those line kinds. The package has
// no I/O; every function is a pure function of its inputs.
package article
