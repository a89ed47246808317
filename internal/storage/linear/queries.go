package linear

// Every query takes its data through GraphQL variables. User-supplied
// text is never spliced into the query document.

const issueFields = `
	id
	identifier
	title
	description
	url
	createdAt
	archivedAt
	assignee {
		id
		name
	}
	state {
		name
	}
`

const teamIssuesQuery = `
query TeamIssues($teamId: String!, $first: Int!, $after: String) {
	team(id: $teamId) {
		id
		name
		issues(first: $first, after: $after) {
			nodes {` + issueFields + `}
			pageInfo {
				hasNextPage
				endCursor
			}
		}
	}
}`

const issueQuery = `
query Issue($id: String!) {
	issue(id: $id) {` + issueFields + `}
}`

const issueCreateMutation = `
mutation IssueCreate($input: IssueCreateInput!) {
	issueCreate(input: $input) {
		success
		issue {` + issueFields + `}
	}
}`

const issueUpdateMutation = `
mutation IssueUpdate($id: String!, $input: IssueUpdateInput!) {
	issueUpdate(id: $id, input: $input) {
		success
		issue {` + issueFields + `}
	}
}`

const teamsQuery = `
query Teams {
	teams {
		nodes {
			id
			key
			name
		}
	}
}`

const viewerQuery = `
query Me {
	viewer {
		id
		name
		email
	}
}`
