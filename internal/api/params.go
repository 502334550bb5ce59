package api

import (
	"strconv"

	"github.com/valyala/fasthttp"
)

type SortOrder string

const (
	OrderDescending SortOrder = "desc"
	OrderAscending  SortOrder = "asc"
)

// Context is the upstream's per-context score scoping.
type Context string

const (
	ContextGeneral     Context = "general"
	ContextNoModifiers Context = "nomodifiers"
	ContextNoPauses    Context = "nopauses"
	ContextGolf        Context = "golf"
)

type MapType string

const (
	MapTypeAll      MapType = "all"
	MapTypeRanked   MapType = "ranked"
	MapTypeUnranked MapType = "unranked"
)

type ClanMapsSort string

const (
	SortToConquer ClanMapsSort = "toconquer"
	SortToHold    ClanMapsSort = "tohold"
)

// QueryParam serializes itself onto a query string.
type QueryParam interface {
	Apply(args *fasthttp.Args)
}

type queryParam struct {
	name  string
	value string
}

func (p queryParam) Apply(args *fasthttp.Args) {
	args.Set(p.name, p.value)
}

func WithPage(page int) QueryParam {
	return queryParam{"page", strconv.Itoa(page)}
}

func WithCount(count int) QueryParam {
	return queryParam{"count", strconv.Itoa(count)}
}

func WithSort(sort ClanMapsSort) QueryParam {
	return queryParam{"sortBy", string(sort)}
}

func WithScoresSort(sort string) QueryParam {
	return queryParam{"sortBy", sort}
}

func WithOrder(order SortOrder) QueryParam {
	return queryParam{"order", string(order)}
}

func WithContext(context Context) QueryParam {
	return queryParam{"leaderboardContext", string(context)}
}

func WithMapType(mapType MapType) QueryParam {
	return queryParam{"type", string(mapType)}
}

func WithTimeFrom(unix int64) QueryParam {
	return queryParam{"time_from", strconv.FormatInt(unix, 10)}
}
