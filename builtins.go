package runner

// SystemTag marks a definition as internal kernel machinery; the debug
// instrumentation resource skips tagged definitions when rendering the
// dependency tree (§6 built-in tags, §12.2).
var SystemTag = NewTag[struct{}, any, any]("runner.system")

// ExcludeFromWildcardTag marks an event as invisible to wildcard (OnAll)
// hooks (§6 built-in tags).
var ExcludeFromWildcardTag = NewTag[struct{}, any, any]("runner.excludeFromWildcard")

// ReadyPayload is the payload of the built-in ready event.
type ReadyPayload struct{}

// Ready is the built-in event emitted once after boot completes and
// buffered logs are flushed (§4.3 step 5, §6 built-in events).
var Ready = NewEvent[ReadyPayload]("runner.ready")
