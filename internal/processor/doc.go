// Package processor contains the core business logic of translore. It runs
// one interaction: detect the source language, translate the text into each
// target language in turn, optionally fetch cultural background, and record
// every successful translation in the user's history. A failure for one
// language never aborts the others.
package processor
