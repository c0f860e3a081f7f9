// Package documents watches uploaded documents until processing finishes.
//
// Watcher polls the document list on a fixed interval while any document is
// processing and stops once none is. PushWatcher subscribes to the backend's
// websocket status stream instead and falls back to polling when the stream
// cannot be opened or drops.
package documents
