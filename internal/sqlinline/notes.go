package sqlinline

const QSelectNoteByID = `--sql 3fc5f685-764b-4251-b01c-e1abfff836f2
select id::text, user_id::text, original_text, processed_text, category, status,
       tokens_used, processing_time_ms, created_at, updated_at
from notes
where id = $1::uuid;
`

const QInsertNote = `--sql d1686644-e495-45ef-99c8-3e93edb9583e
insert into notes (id, user_id, original_text, category, status, tokens_used, processing_time_ms, created_at, updated_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::text, 'pending', 0, 0, now(), now())
returning id::text, user_id::text, original_text, processed_text, category, status,
          tokens_used, processing_time_ms, created_at, updated_at;
`

// QClaimNote only flips rows that are pending, failed, or stuck in processing
// since before $2. Zero rows means another caller holds the note or it is completed.
const QClaimNote = `--sql de56f264-3257-494d-938d-a42e19526055
update notes
set status = 'processing',
    updated_at = now()
where id = $1::uuid
  and (status in ('pending', 'failed')
       or (status = 'processing' and updated_at < $2::timestamptz))
returning id::text, user_id::text, original_text, processed_text, category, status,
          tokens_used, processing_time_ms, created_at, updated_at;
`

// QRejectNote stores the limit rejection under the QClaimNote condition so a
// completed or in-flight note keeps its result.
const QRejectNote = `--sql 8b1f0c52-6e3a-4d97-a2c4-5f0e9d7b3a16
update notes
set status = 'failed',
    processed_text = $2::text,
    updated_at = now()
where id = $1::uuid
  and (status in ('pending', 'failed')
       or (status = 'processing' and updated_at < $3::timestamptz))
returning id::text, user_id::text, original_text, processed_text, category, status,
          tokens_used, processing_time_ms, created_at, updated_at;
`

const QUpdateNoteResult = `--sql c34a4913-d8a4-49c3-a01b-1d7b8bc20bcc
update notes
set status = $2::text,
    processed_text = coalesce($3::text, processed_text),
    tokens_used = coalesce($4::int, tokens_used),
    processing_time_ms = coalesce($5::int, processing_time_ms),
    updated_at = now()
where id = $1::uuid
returning id::text, user_id::text, original_text, processed_text, category, status,
          tokens_used, processing_time_ms, created_at, updated_at;
`
