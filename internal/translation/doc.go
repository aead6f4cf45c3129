// Package translation builds the structured translation prompt, sends it to
// a chat provider and splits the model reply into its labelled sections
// (translation, cultural context, idioms). It also provides a small result
// cache for batch runs.
package translation
