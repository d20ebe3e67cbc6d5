// Package mocks provides shared mock implementations of the service
// interfaces consumed by the HTTP handlers.
//
// Each mock has a function field per method. When the field is set the call
// is delegated to it; otherwise the mock returns its default values. Calls are
// recorded for verification.
//
//	videos := &mocks.MockVideoService{
//	    SubmitFn: func(ctx context.Context, raw string) (service.SubmitResult, error) {
//	        return service.SubmitResult{TaskID: "t1"}, nil
//	    },
//	}
package mocks
