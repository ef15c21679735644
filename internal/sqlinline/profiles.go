package sqlinline

// check_user_limit and increment_monthly_notes live in the database; see migrations/.

const QCheckUserLimit = `--sql 1dd05ca4-f986-46ab-b972-91607df36b85
select can_process, current_count, monthly_limit, tier
from check_user_limit($1::uuid, $2::int, $3::int);
`

const QIncrementMonthlyNotes = `--sql ef929043-a2d8-4ecb-9859-1c4850beb20c
select increment_monthly_notes($1::uuid);
`

const QSelectProfileByID = `--sql 7d3ccca7-080b-484f-85ea-c44186194570
select id::text, monthly_notes_count, subscription_tier, count_reset_at, created_at, updated_at
from profiles
where id = $1::uuid;
`

const QUpsertProfileTier = `--sql 2cd1a2e7-6782-491e-a744-2bf2142b79ec
insert into profiles (id, monthly_notes_count, subscription_tier, count_reset_at, created_at, updated_at)
values ($1::uuid, 0, $2::text, date_trunc('month', now()), now(), now())
on conflict (id) do update set
    subscription_tier = excluded.subscription_tier,
    monthly_notes_count = case when $3::boolean then 0 else profiles.monthly_notes_count end,
    count_reset_at = case when $3::boolean then date_trunc('month', now()) else profiles.count_reset_at end,
    updated_at = now()
returning id::text, monthly_notes_count, subscription_tier, count_reset_at, created_at, updated_at;
`
