package chain

// TicketABI is the subset of the ticket contract interface the server calls.
const TicketABI = `[
  {"type":"function","name":"mintTicket","stateMutability":"payable",
   "inputs":[{"name":"to","type":"address"},{"name":"eventId","type":"uint256"},{"name":"tokenURI","type":"string"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"createEvent","stateMutability":"nonpayable",
   "inputs":[{"name":"name","type":"string"},{"name":"price","type":"uint256"},{"name":"maxTickets","type":"uint256"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getEventInfo","stateMutability":"view",
   "inputs":[{"name":"eventId","type":"uint256"}],
   "outputs":[{"name":"name","type":"string"},{"name":"price","type":"uint256"},{"name":"maxTickets","type":"uint256"},{"name":"ticketsSold","type":"uint256"},{"name":"isActive","type":"bool"}]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"event","name":"Transfer","anonymous":false,
   "inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"tokenId","type":"uint256","indexed":true}]}
]`
