// Package querystring decodes bracket-notation query strings into nested
// parameter maps.
//
// Keys may carry any number of bracketed segments:
//
//	filters[name]==kirill&filters[or][status]==superactive&include=articles
//
// decodes to
//
//	filters:
//	  name: "=kirill"
//	  or:
//	    status: "=superactive"
//	include: "articles"
//
// Brackets are only interpreted in keys. A value such as "[kirill,simon]"
// is kept verbatim.
//
// Decoded maps are *Params, an insertion-ordered map: keys keep the order in
// which they first appeared in the request. Leaf values are a string when the
// key was given once and a []string when it was repeated.
package querystring
