// Package sawmill normalizes heterogeneous coding-agent logs into a single
// deterministic agentlog.v1 event stream.
//
// Quick start:
//
//	s := sawmill.New()
//	result, err := s.Normalize(ctx, records, sawmill.RunConfig{RunID: "run-1"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, event := range result.Events {
//	    fmt.Println(event.SequenceGlobal, event.EventType, event.CanonicalHash)
//	}
//
// The same input batch and RunConfig always produce byte-identical events,
// regardless of worker count. A Sawmill instance is safe for concurrent use.
package sawmill
