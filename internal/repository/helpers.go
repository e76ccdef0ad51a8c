package repository

import "github.com/lib/pq"

func pqArray(values []string) interface{} {
	return pq.Array(values)
}
