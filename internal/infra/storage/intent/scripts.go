package intent

import "github.com/redis/go-redis/v9"

// createScript атомарно проверяет слот и создает (или продлевает) намерение.
// KEYS: slot, pending
// ARGV: id, now, expires_at, patient_id, psychologist_id, date, start, end, price, intent prefix
var createScript = redis.NewScript(`
local existing = redis.call('GET', KEYS[1])
if existing then
	local ikey = ARGV[10] .. existing
	local h = redis.call('HMGET', ikey, 'status', 'expires_at', 'patient_id', 'created_at')
	if h[1] == 'confirmed' then
		return {'booked', existing}
	end
	if h[1] == 'pending_payment' then
		if tonumber(h[2]) > tonumber(ARGV[2]) then
			if h[3] ~= ARGV[4] then
				return {'held', existing}
			end
			redis.call('HSET', ikey, 'expires_at', ARGV[3], 'end_time', ARGV[8], 'session_price', ARGV[9])
			redis.call('ZADD', KEYS[2], ARGV[3], existing)
			return {'extended', existing, h[4]}
		end
		redis.call('HSET', ikey, 'status', 'cancelled')
		redis.call('ZREM', KEYS[2], existing)
	end
end

local ikey = ARGV[10] .. ARGV[1]
redis.call('HSET', ikey,
	'psychologist_id', ARGV[5],
	'patient_id', ARGV[4],
	'scheduled_date', ARGV[6],
	'start_time', ARGV[7],
	'end_time', ARGV[8],
	'session_price', ARGV[9],
	'status', 'pending_payment',
	'expires_at', ARGV[3],
	'created_at', ARGV[2])
redis.call('SET', KEYS[1], ARGV[1])
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[1])
return {'created', ARGV[1], ARGV[2]}
`)

// confirmScript переводит действующее намерение владельца в confirmed.
// KEYS: intent, pending
// ARGV: id, patient_id, now
var confirmScript = redis.NewScript(`
local h = redis.call('HMGET', KEYS[1], 'status', 'expires_at', 'patient_id')
if not h[1] then
	return 'not_found'
end
if h[1] ~= 'pending_payment' or h[3] ~= ARGV[2] or tonumber(h[2]) <= tonumber(ARGV[3]) then
	return 'stale'
end
redis.call('HSET', KEYS[1], 'status', 'confirmed')
redis.call('ZREM', KEYS[2], ARGV[1])
return 'ok'
`)

// cancelScript отменяет намерение и освобождает слот. Повторная отмена возвращает 'already'.
// KEYS: intent, pending
// ARGV: id, slot prefix, expected status ('' - любой)
var cancelScript = redis.NewScript(`
local h = redis.call('HMGET', KEYS[1], 'status', 'psychologist_id', 'scheduled_date', 'start_time')
if not h[1] then
	return 'not_found'
end
if h[1] == 'cancelled' then
	return 'already'
end
if ARGV[3] ~= '' and h[1] ~= ARGV[3] then
	return 'stale'
end
redis.call('HSET', KEYS[1], 'status', 'cancelled')
redis.call('ZREM', KEYS[2], ARGV[1])
local slot = ARGV[2] .. h[2] .. ':' .. h[3] .. ':' .. h[4]
if redis.call('GET', slot) == ARGV[1] then
	redis.call('DEL', slot)
end
return 'ok'
`)

// sweepScript удаляет истекшее намерение, если его expires_at не изменился с момента сканирования.
// KEYS: intent, pending
// ARGV: id, expected expires_at, now, slot prefix
var sweepScript = redis.NewScript(`
local h = redis.call('HMGET', KEYS[1], 'status', 'expires_at', 'psychologist_id', 'scheduled_date', 'start_time')
if h[1] ~= 'pending_payment' then
	redis.call('ZREM', KEYS[2], ARGV[1])
	return 0
end
if h[2] ~= ARGV[2] or tonumber(h[2]) > tonumber(ARGV[3]) then
	return 0
end
local slot = ARGV[4] .. h[3] .. ':' .. h[4] .. ':' .. h[5]
if redis.call('GET', slot) == ARGV[1] then
	redis.call('DEL', slot)
end
redis.call('DEL', KEYS[1])
redis.call('ZREM', KEYS[2], ARGV[1])
return 1
`)
