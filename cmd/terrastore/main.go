// Command terrastore inspects and maintains a territory document store.
//
// The backend is selected with flags or DATA_STORE_* environment variables:
//
//	terrastore --type local --path ./data ls arizona/
//	DATA_STORE_TYPE=remote DATA_STORE_REMOTE_PROVIDER=s3 DATA_STORE_BUCKET=plans \
//	    DATA_STORE_REGION=us-west-2 terrastore backup arizona territory
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
