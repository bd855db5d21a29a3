package service

//go:generate mockgen -source=facilities.go -destination=facilities_mock_test.go -package=service

import "github.com/maxpoletaev/rollcall/membership"

type Cluster interface {
	Self() membership.Row
	Members() []membership.Row
}
