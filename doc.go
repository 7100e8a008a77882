/*
Package stream implements readable, writable, duplex and transform streams
with backpressure and exactly-once lifecycle notifications.

Concept

Every stream is a state machine driven by callbacks. The stream calls
user-provided workers and workers report back with a callback:

    Open     - called once before the first read or write;
    Read     - pushes data into a readable stream;
    Write    - consumes one written item;
    Writev   - consumes a batch of written items;
    Final    - called once after all writes are done;
    Destroy  - releases resources after the stream is torn down.

Workers never run concurrently for the same stream side, and the next
worker is called only after the callback of the previous one.

Loop

Streams are not safe for concurrent use. Each stream belongs to a
loop.Loop and must only be touched by the goroutine which drains that loop.
Streams defer their own work to the loop as well, so nothing happens until
the loop is drained:

    l := loop.New()
    r := stream.FromSlice(l, []any{1, 2, 3})
    r.OnData(func(data any) {
        fmt.Println(data)
    })
    l.Drain()

Workers which block, like file or network reads, should run in their own
goroutines and complete with loop.Defer.

Backpressure

Both sides of a stream buffer items up to a high water mark. Push and
Write return false once the buffered weight reaches the mark. By default,
byte slices and strings weigh their length and other items weigh 1024.

Pipes

Pipe connects a readable source to a writable destination. Data flows
while the destination accepts it, the end of the source ends the
destination and an error on either side destroys the other one. Pipeline
connects any number of streams this way and reports the first error:

    err := stream.Pipeline(func(err error) {
        // all streams are closed
    }, src, transform, dst)

Lifecycle

Destroy tears a stream down. Only the first call has an effect. Streams
destroy themselves once reading and writing are both done, unless
WithoutAutoDestroy is provided. The Close notification is emitted exactly
once per stream, preceded by the Error notification if the stream was
destroyed with an error.
*/
package stream
