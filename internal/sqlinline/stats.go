package sqlinline

const QStatsNotesSummary = `--sql 78dd7cd3-6696-4dea-a67c-7e04c4a13c70
select
  count(*)::int,
  (count(*) filter (where status = 'pending'))::int,
  (count(*) filter (where status = 'processing'))::int,
  (count(*) filter (where status = 'completed'))::int,
  (count(*) filter (where status = 'failed'))::int,
  coalesce(sum(tokens_used), 0)::bigint,
  coalesce(avg(processing_time_ms) filter (where status = 'completed'), 0)::float8
from notes;
`

const QStatsNotesByCategory = `--sql 6ad37eb2-ecfd-477d-bb85-987b25e3649f
select category, count(*)::int
from notes
group by category;
`

const QStatsProfilesByTier = `--sql 067aa5d5-59e3-41b6-b50e-e2901dc1e2e3
select subscription_tier, count(*)::int
from profiles
group by subscription_tier;
`

const QPing = `--sql 42f51463-484b-45c7-91c4-1dff2f98d31a
select 1;
`
