// Package channel wraps the two ends of an OS pipe for the page-gift
// protocol.
//
// An [Endpoint] owns one pipe descriptor. Reads, writes and gifts retry
// interrupted calls and wait in poll(2) when the descriptor would block, so
// callers never see EINTR or EAGAIN. End of stream is reported as io.EOF.
//
// On Linux, [Endpoint.Gift] moves user pages into the pipe with
// vmsplice(2) and SPLICE_F_GIFT; the caller gives up the right to touch the
// gifted pages. Elsewhere it degrades to an ordinary write.
package channel
