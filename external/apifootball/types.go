package apifootball

type fixturesEnvelope struct {
	Errors   any           `json:"errors"`
	Results  int           `json:"results"`
	Response []fixtureItem `json:"response"`
}

type fixtureItem struct {
	Fixture fixtureCore   `json:"fixture"`
	League  fixtureLeague `json:"league"`
	Teams   fixtureTeams  `json:"teams"`
	Goals   fixtureGoals  `json:"goals"`
}

type fixtureCore struct {
	ID        int64         `json:"id"`
	Date      string        `json:"date"`
	Timestamp int64         `json:"timestamp"`
	Status    fixtureStatus `json:"status"`
}

type fixtureStatus struct {
	Long    string `json:"long"`
	Short   string `json:"short"`
	Elapsed *int   `json:"elapsed"`
}

type fixtureLeague struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Season int    `json:"season"`
}

type fixtureTeams struct {
	Home teamRef `json:"home"`
	Away teamRef `json:"away"`
}

type teamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type fixtureGoals struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type statusEnvelope struct {
	Errors   any            `json:"errors"`
	Response statusResponse `json:"response"`
}

type statusResponse struct {
	Requests statusRequests `json:"requests"`
}

type statusRequests struct {
	Current  int `json:"current"`
	LimitDay int `json:"limit_day"`
}
